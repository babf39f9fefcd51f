package model

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// NewTaskID returns a fresh task id. Task ids are never reused or changed.
func NewTaskID() string {
	return "t-" + uuid.New().String()
}

// NextUserID returns "uN" where N is one past the highest numbered user id
func NextUserID(users []User) string {
	highest := 0
	for _, u := range users {
		n, err := strconv.Atoi(strings.TrimPrefix(u.ID, "u"))
		if err != nil || !strings.HasPrefix(u.ID, "u") {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return "u" + strconv.Itoa(highest+1)
}
