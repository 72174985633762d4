// Package domain defines the core vehicle-selection types, the consumer make
// universe, and the error taxonomy shared by the resolvers and their callers.
package domain

// Category is one of the registry vehicle-type partitions queried per resolution.
type Category string

const (
	CategoryPassengerCar Category = "passenger car"
	CategoryMPV          Category = "multipurpose passenger vehicle (mpv)"
	CategoryTruck        Category = "truck"
)

// Categories lists the partitions in merge order.
var Categories = []Category{CategoryPassengerCar, CategoryMPV, CategoryTruck}

// RawRecord is a single registry entry. Makes responses fill MakeName,
// model responses fill ModelName; the remaining fields are carried through
// for logging and export but never drive filtering.
type RawRecord struct {
	MakeID          int    `json:"Make_ID,omitempty"`
	MakeName        string `json:"MakeName,omitempty"`
	ModelID         int    `json:"Model_ID,omitempty"`
	ModelName       string `json:"Model_Name,omitempty"`
	VehicleTypeID   int    `json:"VehicleTypeId,omitempty"`
	VehicleTypeName string `json:"VehicleTypeName,omitempty"`
}

// CategoryResults holds the three per-category record lists fetched for one key.
type CategoryResults struct {
	PassengerCar []RawRecord
	MPV          []RawRecord
	Truck        []RawRecord
}

// Set stores recs under the given category. Unknown categories are ignored.
func (c *CategoryResults) Set(cat Category, recs []RawRecord) {
	switch cat {
	case CategoryPassengerCar:
		c.PassengerCar = recs
	case CategoryMPV:
		c.MPV = recs
	case CategoryTruck:
		c.Truck = recs
	}
}

// Records concatenates car, MPV, then truck records.
func (c CategoryResults) Records() []RawRecord {
	out := make([]RawRecord, 0, len(c.PassengerCar)+len(c.MPV)+len(c.Truck))
	out = append(out, c.PassengerCar...)
	out = append(out, c.MPV...)
	return append(out, c.Truck...)
}

// Vehicle is a finalized year/make/model selection.
type Vehicle struct {
	Year  int    `json:"year"`
	Make  string `json:"make"`
	Model string `json:"model"`
}

// CatchAllModel is appended to every resolved model list.
const CatchAllModel = "Other"
