package synth

import (
	"sync"
	"time"
)

const rateLimitCooldown = 60 * time.Minute

// keyPool rotates cloud API keys. A key that hits a rate limit goes on
// cooldown; when every key is cooling down the least-recently-limited key is
// handed out anyway so rendering degrades instead of stalling.
type keyPool struct {
	mu        sync.Mutex
	keys      []string
	next      int
	cooldowns map[string]time.Time
	now       func() time.Time
}

func newKeyPool(keys []string) *keyPool {
	return &keyPool{
		keys:      append([]string(nil), keys...),
		cooldowns: make(map[string]time.Time),
		now:       time.Now,
	}
}

// acquire returns the next usable key, skipping keys on cooldown.
func (p *keyPool) acquire() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.keys) == 0 {
		return ""
	}

	now := p.now()
	oldest := ""
	oldestUntil := time.Time{}
	for range p.keys {
		key := p.keys[p.next]
		p.next = (p.next + 1) % len(p.keys)

		until, cooling := p.cooldowns[key]
		if !cooling || now.After(until) {
			delete(p.cooldowns, key)
			return key
		}
		if oldest == "" || until.Before(oldestUntil) {
			oldest = key
			oldestUntil = until
		}
	}
	return oldest
}

// markRateLimited puts a key on cooldown after the provider rejected it.
func (p *keyPool) markRateLimited(key string) {
	if key == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cooldowns[key] = p.now().Add(rateLimitCooldown)
}

func (p *keyPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}
