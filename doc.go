/*
	Project: Shule - school portal authentication and routing.

	apps/portal  - the portal client: session lifecycle, password recovery and route guarding
	apps/api     - the account HTTP API the portal's "api" backend talks to
	apps/admin   - account administration and database migrations
*/
package shule

/*
TODO: portal: refresh the JWT through /v1/auth/token-refresh once the "api" backend keeps tokens in the session
*/
