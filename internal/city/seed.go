package city

import "github.com/auracast/auracast/internal/aqi"

// sampleRecords is the built-in city table, in suggestion order.
var sampleRecords = []Record{
	{
		Key:        "new york",
		City:       "New York",
		Current:    aqi.Status{OverallAQI: 45, Level: aqi.LevelGood, DominantPollutant: "PM2.5", DominantCode: aqi.PollutantPM25},
		Pollutants: aqi.Snapshot{PM25: 45, PM10: 20, O3: 30, NO2: 15, SO2: 5, CO: 2},
		Forecast:   week(48, 52, 55, 49, 45, 60, 58),
	},
	{
		Key:        "london",
		City:       "London",
		Current:    aqi.Status{OverallAQI: 78, Level: aqi.LevelModerate, DominantPollutant: "NO₂", DominantCode: aqi.PollutantNO2},
		Pollutants: aqi.Snapshot{PM25: 65, PM10: 78, O3: 40, NO2: 88, SO2: 12, CO: 4},
		Forecast:   week(80, 75, 82, 90, 85, 77, 72),
	},
	{
		Key:        "tokyo",
		City:       "Tokyo",
		Current:    aqi.Status{OverallAQI: 110, Level: aqi.LevelUnhealthyForSensitiveGroups, DominantPollutant: "O₃", DominantCode: aqi.PollutantO3},
		Pollutants: aqi.Snapshot{PM25: 95, PM10: 80, O3: 110, NO2: 70, SO2: 20, CO: 6},
		Forecast:   week(115, 120, 105, 112, 125, 130, 118),
	},
	{
		Key:        "sydney",
		City:       "Sydney",
		Current:    aqi.Status{OverallAQI: 25, Level: aqi.LevelGood, DominantPollutant: "O₃", DominantCode: aqi.PollutantO3},
		Pollutants: aqi.Snapshot{PM25: 15, PM10: 25, O3: 28, NO2: 10, SO2: 4, CO: 1},
		Forecast:   week(30, 28, 22, 25, 35, 32, 29),
	},
	{
		Key:        "delhi",
		City:       "Delhi",
		Current:    aqi.Status{OverallAQI: 185, Level: aqi.LevelUnhealthy, DominantPollutant: "PM2.5", DominantCode: aqi.PollutantPM25},
		Pollutants: aqi.Snapshot{PM25: 185, PM10: 150, O3: 90, NO2: 110, SO2: 40, CO: 10},
		Forecast:   week(190, 205, 180, 175, 195, 210, 200),
	},
	{
		Key:        "kottayam",
		City:       "Kottayam",
		Current:    aqi.Status{OverallAQI: 82, Level: aqi.LevelModerate, DominantPollutant: "PM2.5", DominantCode: aqi.PollutantPM25},
		Pollutants: aqi.Snapshot{PM25: 82, PM10: 45, O3: 60, NO2: 35, SO2: 10, CO: 5},
		Forecast:   week(85, 78, 90, 88, 81, 75, 83),
	},
	{
		Key:        "kanjirapally",
		City:       "Kanjirapally",
		Current:    aqi.Status{OverallAQI: 86, Level: aqi.LevelModerate, DominantPollutant: "O₃", DominantCode: aqi.PollutantO3},
		Pollutants: aqi.Snapshot{PM25: 86, PM10: 75, O3: 89, NO2: 79, SO2: 10, CO: 5},
		Forecast:   week(80, 55, 62, 85, 48, 56, 81),
	},
	{
		Key:        "palakkad",
		City:       "Palakkad",
		Current:    aqi.Status{OverallAQI: 125, Level: aqi.LevelUnhealthyForSensitiveGroups, DominantPollutant: "PM10", DominantCode: aqi.PollutantPM10},
		Pollutants: aqi.Snapshot{PM25: 110, PM10: 125, O3: 80, NO2: 65, SO2: 25, CO: 8},
		Forecast:   week(130, 122, 118, 135, 140, 128, 120),
	},
	{
		Key:        "eranakulam",
		City:       "Eranakulam",
		Current:    aqi.Status{OverallAQI: 98, Level: aqi.LevelModerate, DominantPollutant: "NO₂", DominantCode: aqi.PollutantNO2},
		Pollutants: aqi.Snapshot{PM25: 85, PM10: 98, O3: 70, NO2: 95, SO2: 18, CO: 7},
		Forecast:   week(102, 95, 90, 105, 110, 98, 92),
	},
	{
		Key:        "thiruvananthapuram",
		City:       "Thiruvananthapuram",
		Current:    aqi.Status{OverallAQI: 75, Level: aqi.LevelModerate, DominantPollutant: "PM2.5", DominantCode: aqi.PollutantPM25},
		Pollutants: aqi.Snapshot{PM25: 75, PM10: 50, O3: 40, NO2: 30, SO2: 15, CO: 4},
		Forecast:   week(78, 72, 80, 85, 70, 68, 74),
	},
	{
		Key:        "kochi",
		City:       "Kochi",
		Current:    aqi.Status{OverallAQI: 95, Level: aqi.LevelModerate, DominantPollutant: "NO₂", DominantCode: aqi.PollutantNO2},
		Pollutants: aqi.Snapshot{PM25: 80, PM10: 95, O3: 65, NO2: 92, SO2: 22, CO: 8},
		Forecast:   week(98, 105, 90, 88, 92, 100, 96),
	},
	{
		Key:        "kozhikode",
		City:       "Kozhikode",
		Current:    aqi.Status{OverallAQI: 65, Level: aqi.LevelModerate, DominantPollutant: "PM10", DominantCode: aqi.PollutantPM10},
		Pollutants: aqi.Snapshot{PM25: 55, PM10: 65, O3: 45, NO2: 25, SO2: 10, CO: 3},
		Forecast:   week(68, 62, 70, 75, 60, 58, 64),
	},
	{
		Key:        "thrissur",
		City:       "Thrissur",
		Current:    aqi.Status{OverallAQI: 55, Level: aqi.LevelModerate, DominantPollutant: "PM2.5", DominantCode: aqi.PollutantPM25},
		Pollutants: aqi.Snapshot{PM25: 55, PM10: 30, O3: 50, NO2: 20, SO2: 8, CO: 2},
		Forecast:   week(58, 52, 60, 65, 50, 48, 54),
	},
	{
		Key:        "los angeles",
		City:       "Los Angeles",
		Current:    aqi.Status{OverallAQI: 120, Level: aqi.LevelUnhealthyForSensitiveGroups, DominantPollutant: "O₃", DominantCode: aqi.PollutantO3},
		Pollutants: aqi.Snapshot{PM25: 100, PM10: 85, O3: 120, NO2: 75, SO2: 18, CO: 7},
		Forecast:   week(125, 130, 115, 110, 122, 128, 118),
	},
	{
		Key:        "chicago",
		City:       "Chicago",
		Current:    aqi.Status{OverallAQI: 88, Level: aqi.LevelModerate, DominantPollutant: "PM2.5", DominantCode: aqi.PollutantPM25},
		Pollutants: aqi.Snapshot{PM25: 88, PM10: 60, O3: 70, NO2: 55, SO2: 10, CO: 5},
		Forecast:   week(90, 85, 95, 82, 80, 88, 92),
	},
	{
		Key:        "toronto",
		City:       "Toronto",
		Current:    aqi.Status{OverallAQI: 48, Level: aqi.LevelGood, DominantPollutant: "PM2.5", DominantCode: aqi.PollutantPM25},
		Pollutants: aqi.Snapshot{PM25: 48, PM10: 22, O3: 35, NO2: 18, SO2: 5, CO: 1},
		Forecast:   week(50, 45, 55, 42, 40, 48, 52),
	},
	{
		Key:        "mexico city",
		City:       "Mexico City",
		Current:    aqi.Status{OverallAQI: 160, Level: aqi.LevelUnhealthy, DominantPollutant: "PM2.5", DominantCode: aqi.PollutantPM25},
		Pollutants: aqi.Snapshot{PM25: 160, PM10: 140, O3: 110, NO2: 90, SO2: 35, CO: 12},
		Forecast:   week(165, 170, 155, 150, 162, 168, 158),
	},
}

var weekdays = [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// week builds a Monday-first seven day forecast.
func week(values ...float64) []aqi.ForecastDay {
	days := make([]aqi.ForecastDay, 0, len(weekdays))
	for i, v := range values {
		days = append(days, aqi.ForecastDay{Day: weekdays[i%len(weekdays)], AQI: v})
	}
	return days
}

// SampleRecords returns a deep copy of the built-in city table.
func SampleRecords() []*Record {
	out := make([]*Record, 0, len(sampleRecords))
	for i := range sampleRecords {
		out = append(out, sampleRecords[i].Clone())
	}
	return out
}
