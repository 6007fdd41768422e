// Package checksumpb encodes the checksum request and response messages
// exchanged with the coprocessor layer.
//
// The messages use the Protocol Buffers wire format so that results are
// byte compatible with other checksum producers:
//
//	message ChecksumRequest {
//	    optional uint64 start_ts = 1;
//	    optional ChecksumScanOn scan_on = 2;
//	    optional ChecksumAlgorithm algorithm = 3;
//	}
//
//	message ChecksumResponse {
//	    optional uint64 checksum = 1;
//	    optional uint64 total_kvs = 2;
//	    optional uint64 total_bytes = 3;
//	}
//
//	message Response {
//	    bytes data = 1;
//	    string other_error = 4;
//	}
package checksumpb
