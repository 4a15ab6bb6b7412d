// Package mqtt publishes decoded STP records to an MQTT broker.
//
// Topic layout under the broker URL path prefix:
//
//	<source>/m<master>/c<channel>
//
// Each message is an encoded stp.v1.Record.
package mqtt
