/*
Package resilience protects outbound calls and inbound surfaces.

Breaker fails fast while a dependency keeps failing:

	Closed --[Threshold failures]-> Open --[Cooldown]-> Half-Open --[Probes successes]-> Closed
	                                                       |
	                                                   [failure]
	                                                       v
	                                                     Open

KeyedLimiter keeps a token bucket per key and forgets idle keys.

	limiter := resilience.NewKeyedLimiter(5, 10, 10*time.Minute)
	if !limiter.Allow(clientIP) {
		// reject
	}
*/
package resilience
