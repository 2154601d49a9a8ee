package models

// TripFilter represents filter parameters for listing trips
type TripFilter struct {
	Limit         int      `form:"limit,default=100" binding:"min=1,max=1000"`
	Offset        int      `form:"offset,default=0" binding:"min=0"`
	TimeOfDay     string   `form:"time_of_day" binding:"omitempty,oneof=morning afternoon evening night"`
	SpeedCategory string   `form:"speed_category" binding:"omitempty,oneof=very_slow slow moderate fast very_fast"`
	MinDistance   *float64 `form:"min_distance" binding:"omitempty,min=0"` // Miles
	MaxDistance   *float64 `form:"max_distance" binding:"omitempty,min=0"` // Miles
}

// LocationFilter represents filter parameters for heatmap locations
type LocationFilter struct {
	Limit     int `form:"limit,default=1000" binding:"min=100,max=10000"`
	CellLevel int `form:"cell_level,default=0" binding:"min=0,max=30"` // 0 = exact coordinates
}

// Pagination and heatmap bounds
const (
	DefaultTripLimit     = 100
	MinTripLimit         = 1
	MaxTripLimit         = 1000
	DefaultLocationLimit = 1000
	MinLocationLimit     = 100
	MaxLocationLimit     = 10000
	MaxCellLevel         = 30
)
