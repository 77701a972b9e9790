// Package identity reconciles identity provider principals with the local
// user model.
//
// # Claims
//
// Claim maps from an OAuth2 userinfo response or a verified JWT are wrapped
// in a ClaimSet and turned into an Identity by Normalizer.Normalize.
//
// # Reconciliation
//
// Reconciler.Reconcile makes sure every incoming authority exists in the
// catalog, then creates the identity or merges its profile. With an
// updated_at claim the profile is only overwritten when the provider copy
// is newer than the local one.
//
// # Groups
//
// Provider groups whose raw name contains the legacy marker (default
// "OLD_") belong to the old role model. Classify splits groups into legacy
// and current buckets, Diff computes the memberships to change and
// GroupEngine.Apply leaves before it joins.
//
// # Permissions
//
// HasPermission matches realm roles such as ROLE_admin_billing against a
// permission such as admin_billing.
//
// # Tokens
//
// TokenExchange runs password and refresh grants for the web and mobile
// clients. RefreshCookie hands the refresh token to browsers as an
// HttpOnly cookie.
//
// Example usage:
//
//	engine := identity.New(identity.Options{
//	    Store:    store,
//	    Provider: provider,
//	    Issuer:   provider,
//	    Encoder:  encoder,
//	})
//
//	user, err := engine.Reconciler.GetUserFromAuthentication(ctx, identity.JWTClaims(claims), nil)
//	buckets, err := engine.Groups.UpdateUserGroups(ctx, userID, []string{"g-1", "g-2"})
package identity
