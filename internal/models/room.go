package models

import "time"

// Room represents a teaching room or laboratory.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Capacity  int       `db:"capacity" json:"capacity"`
	IsLab     bool      `db:"is_lab" json:"is_lab"`
	Building  string    `db:"building" json:"building"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RoomFilter captures filtering options for listing rooms.
type RoomFilter struct {
	Lab         *bool
	Building    string
	MinCapacity int
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
