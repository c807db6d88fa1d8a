package ratelimit

import "strings"

// LoginKeys are the two budgets a login attempt draws from. The client budget
// stops one address from trying many accounts; the account budget stops many
// addresses from trying one account.
type LoginKeys struct {
	Client  string
	Account string
}

// ForLogin derives the keys for an attempt from clientIP on username. Account
// names are folded to lower case so case variants share one budget. Account
// is empty when no username was supplied.
func ForLogin(clientIP, username string) LoginKeys {
	keys := LoginKeys{Client: "login:client:" + strings.TrimSpace(clientIP)}
	if name := strings.ToLower(strings.TrimSpace(username)); name != "" {
		keys.Account = "login:account:" + name
	}
	return keys
}
