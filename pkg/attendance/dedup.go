package attendance

// Deduplicate removes rows whose (meetingID, attendeeID, joinTime) key
// has been seen before, keeping the first occurrence. Rows appear in
// channel order, so calendar rows win over the fail-open channels that
// rediscover the same meeting. Returns the surviving rows and the
// number dropped.
func Deduplicate(rows []Row) ([]Row, int) {
	if len(rows) == 0 {
		return rows, 0
	}

	seen := make(map[RowKey]struct{}, len(rows))
	out := rows[:0:0]
	for _, row := range rows {
		key := row.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, row)
	}
	return out, len(rows) - len(out)
}
