package store

import "time"

// Contact is a person the owner knows. Its natural key is (owner, email) or
// (owner, phone).
type Contact struct {
	ID        int64     `db:"id" json:"id"`
	OwnerID   string    `db:"owner_id" json:"owner_id"`
	Name      string    `db:"name" json:"name"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	Email     string    `db:"email" json:"email,omitempty"`
	Address   string    `db:"address" json:"address,omitempty"`
	Notes     string    `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Credential is a website login. Its natural key is (owner, website, username).
type Credential struct {
	ID        int64     `db:"id" json:"id"`
	OwnerID   string    `db:"owner_id" json:"owner_id"`
	Website   string    `db:"website" json:"website"`
	Username  string    `db:"username" json:"username"`
	Password  string    `db:"password" json:"-"`
	Notes     string    `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalPending    GoalStatus = "pending"
	GoalInProgress GoalStatus = "in_progress"
	GoalCompleted  GoalStatus = "completed"
)

// Valid reports whether s is a known status.
func (s GoalStatus) Valid() bool {
	switch s {
	case GoalPending, GoalInProgress, GoalCompleted:
		return true
	}
	return false
}

// Goal is something the owner wants to achieve.
type Goal struct {
	ID          int64      `db:"id" json:"id"`
	OwnerID     string     `db:"owner_id" json:"owner_id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description,omitempty"`
	TargetDate  *time.Time `db:"target_date" json:"target_date,omitempty"`
	Status      GoalStatus `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Schedule is a calendar entry. StartTime is nil for entries saved without a
// parseable date.
type Schedule struct {
	ID          int64      `db:"id" json:"id"`
	OwnerID     string     `db:"owner_id" json:"owner_id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description,omitempty"`
	StartTime   *time.Time `db:"start_time" json:"start_time,omitempty"`
	EndTime     *time.Time `db:"end_time" json:"end_time,omitempty"`
	Location    string     `db:"location" json:"location,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// NumericalInfo is a labelled number such as a balance or a body weight.
type NumericalInfo struct {
	ID        int64     `db:"id" json:"id"`
	OwnerID   string    `db:"owner_id" json:"owner_id"`
	Category  string    `db:"category" json:"category"`
	Label     string    `db:"label" json:"label"`
	Value     string    `db:"value" json:"value"`
	Unit      string    `db:"unit" json:"unit,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// UsageStat records one handled action.
type UsageStat struct {
	ID         int64     `db:"id" json:"id"`
	OwnerID    string    `db:"owner_id" json:"owner_id"`
	ActionType string    `db:"action_type" json:"action_type"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// DataSummary counts an owner's records per type. Total sums the record
// counts; ChatMessages counts handled messages and is not part of it.
type DataSummary struct {
	Contacts      int `json:"contacts"`
	Credentials   int `json:"credentials"`
	Goals         int `json:"goals"`
	Schedules     int `json:"schedules"`
	NumericalInfo int `json:"numerical_info"`
	Total         int `json:"total"`
	ChatMessages  int `json:"chat_messages"`
}
