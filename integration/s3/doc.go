// Package s3 replicates certificate artifacts to Amazon S3 or S3-compatible
// object storage.
//
// The mirror is write-only: after each successful issuance or renewal the
// certifier pushes domain.key and chained.pem to the bucket. Replication
// failures are reported to the certifier, which logs them without failing
// the cycle; the local store remains the source of truth.
//
// # Usage
//
//	mirror, err := s3.New(ctx, s3.Config{
//		Bucket: "team-certificates",
//		Region: "eu-west-1",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
// The returned Mirror satisfies certstore.Mirror and plugs into the
// certificate manager through the builder's mirror setter. S3-compatible
// services work through Config.Endpoint with ForcePathStyle set as the
// service requires.
//
// # Error Handling
//
// Failures are classified into stable error types checkable with
// errors.Is(): ErrAccessDenied, ErrBucketNotFound, ErrServiceUnavailable,
// ErrOperationTimeout and ErrOperationCanceled. Unclassified API errors keep
// their S3 error code in the message.
package s3
