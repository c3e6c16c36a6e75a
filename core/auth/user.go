package auth

import (
	"encoding/json"
	"strconv"
	"strings"
)

// User is the normalized profile of the signed-in account.
// Fields the backend did not send are empty, never an error.
type User struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
	AvatarURL string
	Role      Role
	// UserType is the raw backend value Role was derived from.
	UserType string
	Billing  *Address
	Shipping *Address
	Merchant *Merchant
}

// Address is a billing or shipping address.
type Address struct {
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
}

// Merchant is the business profile attached to merchant accounts.
type Merchant struct {
	ID           string
	BusinessName string
	Description  string
	Phone        string
	Email        string
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeUser maps a loosely shaped "who am I" payload onto User.
// "data" and then "user" envelopes are unwrapped first. For each field the
// first non-empty source wins:
//
//	ID         id, _id, userId, user_id
//	FirstName  first_name, firstName, first word of name/fullName/full_name
//	LastName   last_name, lastName, remaining words of name/fullName/full_name
//	Email      email, emailAddress
//	Phone      phone, phoneNumber, phone_number, mobile
//	Address    address (string) or address.street
//	AvatarURL  avatar, avatarUrl, avatar_url, profileImage, profile_image, image
//	UserType   user_type, userType, role, type
//	Billing    billing_address, billingAddress
//	Shipping   shipping_address, shippingAddress
//	Merchant   merchant, merchant_profile, merchantProfile
//
// Role is left empty when UserType is not a known role.
func NormalizeUser(payload map[string]any) User {
	p := unwrap(payload)

	u := User{
		ID:        str(p, "id", "_id", "userId", "user_id"),
		FirstName: str(p, "first_name", "firstName"),
		LastName:  str(p, "last_name", "lastName"),
		Email:     str(p, "email", "emailAddress"),
		Phone:     str(p, "phone", "phoneNumber", "phone_number", "mobile"),
		AvatarURL: str(p, "avatar", "avatarUrl", "avatar_url", "profileImage", "profile_image", "image"),
		UserType:  str(p, "user_type", "userType", "role", "type"),
	}

	if u.FirstName == "" || u.LastName == "" {
		first, rest := splitName(str(p, "name", "fullName", "full_name"))
		if u.FirstName == "" {
			u.FirstName = first
		}
		if u.LastName == "" {
			u.LastName = rest
		}
	}

	if addr := str(p, "address"); addr != "" {
		u.Address = addr
	} else if m := obj(p, "address"); m != nil {
		u.Address = str(m, "street", "line1", "address")
	}

	if role, err := ParseRole(u.UserType); err == nil {
		u.Role = role
	}

	u.Billing = address(obj(p, "billing_address", "billingAddress"))
	u.Shipping = address(obj(p, "shipping_address", "shippingAddress"))
	u.Merchant = merchant(obj(p, "merchant", "merchant_profile", "merchantProfile"))

	return u
}

func unwrap(p map[string]any) map[string]any {
	if p == nil {
		return map[string]any{}
	}
	if data := obj(p, "data"); data != nil {
		p = data
	}
	if user := obj(p, "user"); user != nil {
		p = user
	}
	return p
}

func address(m map[string]any) *Address {
	if m == nil {
		return nil
	}
	return &Address{
		Street:     str(m, "street", "address", "line1"),
		City:       str(m, "city"),
		State:      str(m, "state"),
		PostalCode: str(m, "zip", "postal_code", "postalCode"),
		Country:    str(m, "country"),
	}
}

func merchant(m map[string]any) *Merchant {
	if m == nil {
		return nil
	}
	return &Merchant{
		ID:           str(m, "id", "_id"),
		BusinessName: str(m, "business_name", "businessName", "name"),
		Description:  str(m, "description"),
		Phone:        str(m, "phone", "phoneNumber", "phone_number"),
		Email:        str(m, "email"),
	}
}

func splitName(name string) (first, rest string) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// str returns the first key holding a non-empty string or number.
func str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		}
	}
	return ""
}

// obj returns the first key holding a JSON object.
func obj(m map[string]any, keys ...string) map[string]any {
	for _, k := range keys {
		if v, ok := m[k].(map[string]any); ok {
			return v
		}
	}
	return nil
}
