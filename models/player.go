package models

import "time"

type Player struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	TeamID      int       `json:"team_id" db:"team_id"`
	RosterOrder *int      `json:"roster_order,omitempty" db:"roster_order"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	Team *Team `json:"team,omitempty" db:"-"`

	PhotoKey *string `json:"-" db:"photo_key"`
	PhotoURL *string `json:"profile_pic,omitempty" db:"-"`
}
