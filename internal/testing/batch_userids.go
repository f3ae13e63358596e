package testing

// BatchUserIDs pairs the first user id with every other one,
// e.g. [0, 1, 2, 3] -> [[0,1], [0,2], [0,3]]
func BatchUserIDs(userIDs []int64) [][]int64 {
	batches := make([][]int64, 0, len(userIDs)-1)
	for _, id := range userIDs[1:] {
		batches = append(batches, []int64{userIDs[0], id})
	}

	return batches
}
