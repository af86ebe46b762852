package types

// Capability authorizes custody moves out of an explicit set of accounts.
// The zero value authorizes nothing.
type Capability struct {
	holder   string
	accounts map[string]struct{}
}

// NewCapability scopes a capability held by holder to the given accounts.
func NewCapability(holder string, accounts ...string) Capability {
	c := Capability{holder: holder, accounts: make(map[string]struct{}, len(accounts))}
	for _, a := range accounts {
		if a != "" {
			c.accounts[a] = struct{}{}
		}
	}
	return c
}

// Holder returns the identity the capability was issued to.
func (c Capability) Holder() string { return c.holder }

// Allows reports whether the capability may authorize moves out of account.
func (c Capability) Allows(account string) bool {
	_, ok := c.accounts[account]
	return ok
}

// Extend returns a copy of c that also covers the given accounts.
func (c Capability) Extend(accounts ...string) Capability {
	all := make([]string, 0, len(c.accounts)+len(accounts))
	for a := range c.accounts {
		all = append(all, a)
	}
	return NewCapability(c.holder, append(all, accounts...)...)
}
