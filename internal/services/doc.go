// Package services runs the ETL: the batch driver walks one phase directory
// file by file, and the pipeline orders the song phase before the log phase
// over a single store.
package services
