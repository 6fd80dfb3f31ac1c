package models

type StorageLocation struct {
	ID          int     `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description,omitempty" db:"description"`
}

type Shelf struct {
	ID         int    `json:"id" db:"id"`
	LocationID int    `json:"location_id" db:"location_id"`
	Name       string `json:"name" db:"name"`
}
