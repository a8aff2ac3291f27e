package redisx

import "fmt"

const ns = "flightbooker:v1"

func KeyFlightSummary(flightID int64) string {
	return fmt.Sprintf("%s:flight:%d:summary", ns, flightID)
}

func KeyFlightAvailability(flightID int64) string {
	return fmt.Sprintf("%s:flight:%d:availability", ns, flightID)
}

// RateLimitPrefix namespaces a limiter's keys under one scope.
func RateLimitPrefix(scope string) string {
	return fmt.Sprintf("%s:rl:%s", ns, scope)
}

func ChannelFlightsChanged() string {
	return ns + ":flights:changed"
}
