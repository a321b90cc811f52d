package models

// Room is a room owned by one manager. Occupancy is a denormalized counter.
type Room struct {
	ID        string `bson:"_id" json:"id"`
	UserID    string `bson:"userId" json:"userId"`
	RoomNo    string `bson:"roomNo" json:"roomNo"`
	Capacity  int    `bson:"capacity" json:"capacity"`
	Occupancy int    `bson:"occupancy" json:"occupancy"`
}

// Vacancy is never negative even when occupancy has drifted past capacity.
func (r Room) Vacancy() int {
	if r.Occupancy >= r.Capacity {
		return 0
	}
	return r.Capacity - r.Occupancy
}

func (r Room) IsFull() bool {
	return r.Occupancy >= r.Capacity
}
