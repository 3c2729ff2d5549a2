package telemetry

// LatestPerDevice reduces a record stream to one record per device id,
// keeping the record with the greatest window end. For a stream already
// sorted newest-first this means the first record seen for a device wins,
// ties included. Device order in the result follows first encounter.
func LatestPerDevice(records []Record) []Record {
	if len(records) == 0 {
		return nil
	}
	index := make(map[string]int, len(records))
	result := make([]Record, 0, len(records))
	for _, rec := range records {
		pos, seen := index[rec.DeviceID]
		if !seen {
			index[rec.DeviceID] = len(result)
			result = append(result, rec)
			continue
		}
		if rec.WindowEnd.After(result[pos].WindowEnd) {
			result[pos] = rec
		}
	}
	return result
}
