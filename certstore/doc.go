// Package certstore manages the on-disk layout of an issued certificate:
// a private key file (domain.key) and a bundled chain file (chained.pem)
// inside a single directory.
//
// Writes stage through a temporary file and rename into place, so readers
// either see the previous artifact or the complete new one. Presence checks
// treat every read failure as absence, which makes probing safe against
// missing directories, permission problems, and half-configured hosts.
//
// # Usage
//
//	store, err := certstore.New("~/dadi/ssl")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := store.Ensure(); err != nil {
//		log.Fatal(err)
//	}
//
//	if store.HasCertificate() {
//		expiry, _ := store.NotAfter()
//		log.Printf("certificate valid until %s", expiry)
//	}
package certstore
