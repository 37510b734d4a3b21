// Package ratelimit provides a multi-tier token bucket limiter for gating
// calls to a rate-limited external API.
//
// A Limiter owns an ordered set of tiers (for example per-second, per-minute,
// per-hour) that are ANDed together: admission requires every tier to have
// tokens, and a deduction is all-or-nothing across tiers.
package ratelimit
