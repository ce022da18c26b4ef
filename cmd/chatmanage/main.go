// Command chatmanage is a conversational personal-data manager. Messages are
// either answered from the local SQLite store or parsed by an LLM and saved
// as contacts, credentials, goals, schedules and numerical facts.
package main

const version = "0.1.0-dev"

func main() {
	Execute()
}
