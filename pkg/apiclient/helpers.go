package apiclient

import "fmt"

// Generic helpers that remove repetitive HTTP boilerplate across the
// resource files in this package.

func getResource[T any](c *Client, path string) (*T, error) {
	var result T
	if err := c.get(path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func listResources[T any](c *Client, path string) ([]T, error) {
	var results []T
	if err := c.get(path, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func createResource[T any](c *Client, path string, body any) (*T, error) {
	var result T
	if err := c.post(path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func deleteResource(c *Client, path string) error {
	return c.delete(path, nil)
}

func resourcePath(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
