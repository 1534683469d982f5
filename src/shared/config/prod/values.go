package prod

// DynamoDB
const (
	DynamoDBRegion = "us-east-2"
)

// Cloud storage
const (
	GOOGLE_STORAGE_HOST = "https://storage.googleapis.com"
)
