package model

import "strings"

// Actor is a person credited on movies.
//
// Fields:
//  ID        – primary key identifier.
//  FirstName – given name.
//  LastName  – family name.
type Actor struct {
    ID        uint64 // actors.id
    FirstName string // actors.first_name
    LastName  string // actors.last_name
}

// FullName joins first and last name with a single space.
func (a Actor) FullName() string {
    return strings.TrimSpace(a.FirstName + " " + a.LastName)
}
