package models

// Hostel is a facility run by one manager.
type Hostel struct {
	ID          string `bson:"_id" json:"id"`
	HostelCode  string `bson:"hostelCode" json:"hostelCode"` // HST0001
	HostelName  string `bson:"hostelName" json:"hostelName"`
	AddressLine string `bson:"addressLine" json:"addressLine"`
	District    string `bson:"district" json:"district"`
	Zipcode     string `bson:"zipcode" json:"zipcode"`
	UserID      string `bson:"userId" json:"userId"`
	Capacity    int    `bson:"capacity" json:"capacity"`
	IsDeleted   bool   `bson:"is_deleted" json:"is_deleted"`
	CreatedAt   int64  `bson:"createdAt" json:"createdAt"`
}

// Address joins the address parts the way receipts print them.
func (h Hostel) Address() string {
	return h.AddressLine + ", " + h.District + ", " + h.Zipcode
}

// HostelCapacity is the per-hostel occupancy aggregate.
type HostelCapacity struct {
	ID         string `bson:"_id" json:"id"` // hostel id
	HostelName string `bson:"hostelName" json:"hostelName"`
	UserID     string `bson:"userId" json:"userId"`
	Capacity   int    `bson:"capacity" json:"capacity"`
	Occupancy  int    `bson:"occupancy" json:"occupancy"`
	IsDeleted  bool   `bson:"is_deleted" json:"is_deleted"`
}

func (c HostelCapacity) Vacancy() int {
	return c.Capacity - c.Occupancy
}
