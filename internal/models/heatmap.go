package models

// HeatmapPoint represents a single grouped location in the heatmap
type HeatmapPoint struct {
	Lat       float64 `json:"lat"`        // Latitude (cell centre when binned)
	Lng       float64 `json:"lng"`        // Longitude (cell centre when binned)
	TripCount int64   `json:"trip_count"` // Trips starting/ending at this location
}

// LocationPatterns represents the heatmap API response
type LocationPatterns struct {
	PickupLocations  []HeatmapPoint `json:"pickup_locations"`
	DropoffLocations []HeatmapPoint `json:"dropoff_locations"`
	CellLevel        int            `json:"cell_level,omitempty"`
}
