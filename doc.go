// Package roma provides a Go client for the ROMA bastion host REST API.
//
// The client attaches a bearer token or API key from a credential store to
// every request, retries requests that got no response, and reduces the
// backend's {code, msg, data} replies to either decoded data or an *Error.
//
// Basic usage:
//
//	client, err := roma.New("https://roma.example.com/api/v1/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if _, err := client.Login(ctx, "admin", "secret"); err != nil {
//	    log.Fatal(err)
//	}
//
//	users, err := client.ListUsers(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, u := range users {
//	    fmt.Println(u.Username)
//	}
//
// A 401 from any call clears the credential store. Use [WithNavigator] to be
// told when that happens, and [WithCredentialStore] with a file-backed store
// to keep a session across runs.
package roma
