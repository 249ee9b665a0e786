package models

import "time"

// Review is a member's rating of a batch. The user name is snapshotted at
// submission time so later profile edits do not rewrite history.
type Review struct {
	ID        string    `db:"id" json:"id"`
	BatchID   string    `db:"batch_id" json:"batch_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	UserName  string    `db:"user_name" json:"user_name"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
