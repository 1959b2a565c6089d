package redis

import "fmt"

// BidderRateKey names the rate-limit window for one bidder.
func BidderRateKey(bidder string) string {
	return fmt.Sprintf("auction:rate_limit:bidder:%s", bidder)
}

// IPRateKey names the rate-limit window for one client IP, used when a
// request carries no bidder name.
func IPRateKey(ip string) string {
	return fmt.Sprintf("auction:rate_limit:ip:%s", ip)
}
