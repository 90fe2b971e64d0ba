// Package cli provides the vidtube command-line client.
//
// Each invocation runs one command against the gRPC endpoint and exits:
//
//	vidtube [-a addr] [-s session-file] [-t seconds] <command>
//
// Commands:
//   - login   prompt for username or email and password, start a session
//   - refresh rotate the stored token pair
//   - logout  end the session and forget the tokens
//   - me      print the logged-in account
//   - passwd  change the password
//
// The token pair survives between invocations in the session file.
package cli
