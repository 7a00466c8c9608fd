package main

import (
	"os"

	"github.com/lshigami/examhub/internal/cli"
)

// @title examhub API
// @version 1.0
// @description Question bank import, exam assembly from structure templates, and grading of student attempts.
// @termsOfService http://swagger.io/terms/
// @contact.name API Support
// @contact.url http://example.com/support
// @contact.email support@example.com
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
