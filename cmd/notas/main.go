// Command notas runs the purchase-document extraction service: an HTTP
// dashboard API, one-shot extraction runs and spreadsheet exports.
package main

func main() {
	Execute()
}
