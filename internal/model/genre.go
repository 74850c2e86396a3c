package model

// Genre is a movie genre such as "Drama".  Names are unique.
//
// Fields:
//  ID   – primary key identifier.
//  Name – unique display name.
type Genre struct {
    ID   uint64 // genres.id
    Name string // genres.name
}
