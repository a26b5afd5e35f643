package reservations

import "strconv"

const TopicReservationUpdated = "reservation.updated"

// Partition key = reservation id, so every update of one reservation stays ordered.
func PartitionKey(id int64) []byte { return []byte(strconv.FormatInt(id, 10)) }
