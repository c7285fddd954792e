package redisx

import "fmt"

const ns = "venuebook:v1"

func KeyVenue(venueID int64) string {
	return fmt.Sprintf("%s:venue:%d", ns, venueID)
}

func KeyVenueSlots(venueID int64, day string) string {
	return fmt.Sprintf("%s:venue:%d:slots:%s", ns, venueID, day)
}

func KeyVenueList(filterHash string) string {
	return fmt.Sprintf("%s:venues:list:%s", ns, filterHash)
}

func ChannelVenuesChanged() string {
	return ns + ":venues:changed"
}
