package auth

// Identity is the resolved caller of a request. It is one of Anonymous,
// CustomerIdentity or StaffIdentity.
type Identity interface {
	isIdentity()
}

// Anonymous is a caller without a usable credential.
type Anonymous struct{}

// CustomerIdentity is a caller resolved to a shop customer.
type CustomerIdentity struct {
	Customer Customer
}

// StaffIdentity is a caller resolved to an employee account.
type StaffIdentity struct {
	User User
}

func (Anonymous) isIdentity()        {}
func (CustomerIdentity) isIdentity() {}
func (StaffIdentity) isIdentity()    {}
