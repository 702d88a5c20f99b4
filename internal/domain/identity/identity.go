package identity

// Identity is an opaque account identifier. It is already verified by whatever shell
// admitted the call; the ledger only compares identities for equality.
type Identity string

func (i Identity) String() string { return string(i) }

func (i Identity) IsZero() bool { return i == "" }
