package parts

import (
	"context"
	"sort"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/repository"
	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
)

// Line is one part/quantity pair of a bulk issuance or batch delivery.
type Line struct {
	PartID   int
	Quantity int
}

// CheckLines locks every part named by lines, in ascending id order, and
// verifies all lines can be served together. Demand is cumulative per part,
// so two lines for the same part must fit into its stock jointly. Every
// failing line is reported in a single BulkError; nothing is written.
func (s *Service) CheckLines(ctx context.Context, lines []Line) (map[int]*models.Part, error) {
	if !repository.InTransaction(ctx) {
		return nil, repository.ErrNoTransaction
	}

	ids := make([]int, 0, len(lines))
	seen := map[int]struct{}{}
	for _, line := range lines {
		if _, ok := seen[line.PartID]; ok {
			continue
		}
		seen[line.PartID] = struct{}{}
		ids = append(ids, line.PartID)
	}
	sort.Ints(ids)

	locked := make(map[int]*models.Part, len(ids))
	for _, id := range ids {
		part, err := s.repo.GetPartForUpdate(ctx, id)
		if err != nil {
			if custom_error.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		locked[id] = part
	}

	var lineErrors []custom_error.LineError
	consumed := map[int]int{}
	for i, line := range lines {
		lineErr := custom_error.LineError{Line: i + 1, PartID: line.PartID, Requested: line.Quantity}

		if line.Quantity <= 0 {
			lineErr.Reason = "quantity must be greater than zero"
			lineErrors = append(lineErrors, lineErr)
			continue
		}

		part, ok := locked[line.PartID]
		if !ok {
			lineErr.Reason = "part not found"
			lineErrors = append(lineErrors, lineErr)
			continue
		}

		remaining := part.Quantity - consumed[line.PartID]
		if line.Quantity > remaining {
			available := remaining
			lineErr.Reason = "insufficient stock"
			lineErr.Available = &available
			lineErrors = append(lineErrors, lineErr)
			continue
		}
		consumed[line.PartID] += line.Quantity
	}

	if len(lineErrors) > 0 {
		return nil, &custom_error.BulkError{Lines: lineErrors}
	}
	return locked, nil
}
