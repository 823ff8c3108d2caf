// @title           payflow API
// @version         1.0
// @description     Backend API: Google OAuth аутентификация и платежи через Paystack.
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:4000
// @BasePath        /api/v1

package main

import "payflow_backend/internal/app"

func main() {
	app.Run()
}
