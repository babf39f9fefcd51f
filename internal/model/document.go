package model

import "time"

// DefaultPollingInterval is used when the document does not configure one
const DefaultPollingInterval = 5 * time.Second

// Meta describes the committed state of the document
type Meta struct {
	Version     string `json:"version"`
	LastUpdated int64  `json:"last_updated"` // Unix seconds
	UpdatedBy   string `json:"updated_by,omitempty"`
}

// Settings is the document's config block. It only changes through the
// settings-save path.
type Settings struct {
	AdminPasswordHash string `json:"admin_password_hash"`
	PollingInterval   int    `json:"polling_interval,omitempty"` // Milliseconds
}

// Interval returns the polling interval, falling back to the default
func (s Settings) Interval() time.Duration {
	if s.PollingInterval <= 0 {
		return DefaultPollingInterval
	}
	return time.Duration(s.PollingInterval) * time.Millisecond
}

// Document is the single shared work-breakdown document
type Document struct {
	Meta   Meta     `json:"meta"`
	Config Settings `json:"config"`
	Users  []User   `json:"users"`
	Tasks  []Task   `json:"tasks"`
}

// Version returns the document's version token
func (d *Document) Version() string {
	if d == nil {
		return ""
	}
	return d.Meta.Version
}

// Clone returns a deep copy of the document
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := &Document{
		Meta:   d.Meta,
		Config: d.Config,
		Users:  append([]User{}, d.Users...),
		Tasks:  make([]Task, len(d.Tasks)),
	}
	for i, t := range d.Tasks {
		c.Tasks[i] = t.clone()
	}
	return c
}

// Normalize replaces nil collections with empty ones so the encoded form is stable
func (d *Document) Normalize() {
	if d.Users == nil {
		d.Users = []User{}
	}
	if d.Tasks == nil {
		d.Tasks = []Task{}
	}
	for i := range d.Tasks {
		if d.Tasks[i].Dependencies == nil {
			d.Tasks[i].Dependencies = []string{}
		}
	}
}

// Task returns the task with the given id
func (d *Document) Task(id string) (*Task, bool) {
	for i := range d.Tasks {
		if d.Tasks[i].ID == id {
			return &d.Tasks[i], true
		}
	}
	return nil, false
}

// User returns the user with the given id
func (d *Document) User(id string) (*User, bool) {
	for i := range d.Users {
		if d.Users[i].ID == id {
			return &d.Users[i], true
		}
	}
	return nil, false
}

// Admin returns the first user holding the admin role
func (d *Document) Admin() (*User, bool) {
	for i := range d.Users {
		if d.Users[i].IsAdmin() {
			return &d.Users[i], true
		}
	}
	return nil, false
}

// Children returns the ids of tasks whose parent is id
func (d *Document) Children(id string) []string {
	var ids []string
	for _, t := range d.Tasks {
		if t.Parent() == id {
			ids = append(ids, t.ID)
		}
	}
	return ids
}
