package redis

import "strings"

type keyspace string

const defaultKeyspace keyspace = "storefront"

func (k keyspace) join(parts ...string) string {
	var b strings.Builder
	b.WriteString(string(k))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}

func (c *Client) namespace() keyspace {
	if c == nil || c.keys == "" {
		return defaultKeyspace
	}
	return c.keys
}

// IdempotencyKey is storefront:idem:<scope>:<id>.
func (c *Client) IdempotencyKey(scope, id string) string {
	return c.namespace().join("idem", scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return c.namespace().join("rl", scope)
}

// AccessSessionKey holds the refresh session for one access token jti.
func (c *Client) AccessSessionKey(accessID string) string {
	return c.namespace().join("sess", accessID)
}

func (c *Client) LockKey(parts ...string) string {
	return c.namespace().join(append([]string{"lock"}, parts...)...)
}
