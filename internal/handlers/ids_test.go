package handlers_test

// Route ids used across handler tests
const (
	testGroupID       = "6f1c2a9e-3b4d-4e8f-9a10-2b3c4d5e6f70"
	testMediaID       = "0d9e8f7a-6b5c-4d3e-8f21-a0b1c2d3e4f5"
	testJoinRequestID = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
	testMemberID      = "3c2b1a09-8f7e-4d6c-9b5a-4f3e2d1c0b9a"
	testOwnerID       = "5e4d3c2b-1a09-4f8e-8d7c-6b5a4f3e2d1c"
	testMissingID     = "11111111-2222-4333-8444-555555555555"
)
