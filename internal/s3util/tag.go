package s3util

// projectTag is the URL-encoded S3 object tagging string for cost allocation.
const projectTag = "Project=gen-ai-bedrock"

// ProjectTagging returns a pointer to the URL-encoded S3 object tagging string,
// for the Tagging field of PutObjectInput.
func ProjectTagging() *string {
	t := projectTag
	return &t
}
