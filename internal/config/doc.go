// Package config defines configuration structures for the nspsplit CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (NSPSPLIT_ prefix)
//   - YAML configuration file
//
// Flags override the environment, which overrides the file.
//
// # File Format
//
//	part_size: 4GiB
//	buffer_size: 8MiB
//	extension: .nsp
//	extensions: [.nsp, .nsz, .xci, .xcz]
//	manifest: true
//	verify: true
//	progress: true
//	bucket: s3://my-bucket?region=us-east-1
//	watch:
//	  debounce: 2s
//	  output: /mnt/sdcard
package config
