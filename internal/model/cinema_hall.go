package model

// CinemaHall is a screening room with a rectangular seat grid.
//
// Fields:
//  ID         – primary key identifier.
//  Name       – display name (not unique).
//  Rows       – number of seat rows.
//  SeatsInRow – seats per row.
type CinemaHall struct {
    ID         uint64 // cinema_halls.id
    Name       string // cinema_halls.name
    Rows       uint32 // cinema_halls.seat_rows
    SeatsInRow uint32 // cinema_halls.seats_in_row
}

// Capacity is the total number of seats in the hall.
func (h CinemaHall) Capacity() int {
    return int(h.Rows) * int(h.SeatsInRow)
}

// HasPlace reports whether row and seat (both 1-based) exist in the hall.
func (h CinemaHall) HasPlace(row, seat uint32) bool {
    return row >= 1 && row <= h.Rows && seat >= 1 && seat <= h.SeatsInRow
}
