// Package bitcask provides a client for interacting with a caskdb server
// over TCP.
//
// Example:
//
//	client, err := bitcask.Connect(bitcask.WithPort(6969))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	_, err = client.SET("foo", "bar")
//	val, err := client.GET("foo")
package bitcask
