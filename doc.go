// Package websec is the security core of the booking web backend:
// credential hashing with legacy-format migration, sliding-window rate
// limiting with failed-login lockout, CSRF token issuance and verification,
// and strict validation of untrusted input fields.
//
// The core performs no network or file I/O and manages no HTTP sessions;
// it exposes pure predicates that the HTTP layer composes into request
// handling. Rate-limit and lockout state is in-memory and best effort;
// it does not survive a restart.
//
// The five concerns live in their own packages (credential, ratelimit,
// csrf, validate, audit) and do not depend on each other. The Suite type
// in this package is the convenience composition root:
//
//	suite, err := websec.NewSuite(websec.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err) // invalid security config must stop startup
//	}
//	defer suite.Stop()
//
//	ip := websec.ClientIP(r, true, 1)
//	if allowed, _ := suite.CheckRateLimit(ctx, "login", ip, 5, time.Minute); !allowed {
//	    // respond 429
//	}
//
//	ok, rehash := suite.VerifyCredential(ctx, email, password, storedHash)
//	if ok && rehash {
//	    // re-hash with suite.HashCredential and persist
//	}
//
// Error-handling contract: malformed input and exceeded limits are reported
// as boolean results, never as errors or panics, so a security check cannot
// be skipped by an ignored error. The only loud failures are construction
// with an invalid configuration and a failing system random source.
package websec
