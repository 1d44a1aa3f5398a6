package handler

import (
	"net/http"

	"codequest/internal/common"
)

// PageHandler serves the minimal server-rendered pages: the login/register
// form and the API root.
type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

func (h *PageHandler) Root(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Welcome to CodeQuest API"})
}

func (h *PageHandler) AuthPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(authPageHTML))
}

const authPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Authentication</title>
  <style>
    * { margin: 0; padding: 0; box-sizing: border-box; }
    body {
      font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
      background: linear-gradient(135deg, #1a1a2e 0%, #16213e 100%);
      min-height: 100vh; display: flex; justify-content: center; align-items: center;
    }
    .container {
      background: rgba(255, 255, 255, 0.1); border-radius: 20px;
      padding: 40px; width: 400px; box-shadow: 0 8px 32px rgba(0, 0, 0, 0.3);
    }
    h1 { color: #fff; text-align: center; margin-bottom: 30px; }
    .tabs { display: flex; margin-bottom: 30px; }
    .tab {
      flex: 1; padding: 15px; text-align: center; background: transparent; border: none;
      color: #888; cursor: pointer; font-size: 16px; border-bottom: 2px solid transparent;
    }
    .tab.active { color: #fff; border-bottom-color: #4a90d9; }
    .form-group { margin-bottom: 20px; }
    label { display: block; color: #ccc; margin-bottom: 8px; }
    input {
      width: 100%; padding: 15px; border: none; border-radius: 10px;
      background: rgba(255, 255, 255, 0.1); color: #fff; font-size: 16px;
    }
    button[type="submit"] {
      width: 100%; padding: 15px; border: none; border-radius: 10px;
      background: linear-gradient(135deg, #4a90d9 0%, #3672b9 100%);
      color: #fff; font-size: 16px; cursor: pointer;
    }
    .error, .success { padding: 10px; border-radius: 5px; margin-bottom: 20px; display: none; }
    .error { background: rgba(255, 0, 0, 0.2); color: #ff6b6b; }
    .success { background: rgba(0, 255, 0, 0.2); color: #6bff6b; }
    .form-container { display: none; }
    .form-container.active { display: block; }
  </style>
</head>
<body>
  <div class="container">
    <h1>CodeQuest</h1>
    <div class="tabs">
      <button class="tab active" onclick="showForm('login')">Login</button>
      <button class="tab" onclick="showForm('register')">Register</button>
    </div>
    <div id="error" class="error"></div>
    <div id="success" class="success"></div>
    <div id="login-form" class="form-container active">
      <form onsubmit="submitAuth(event, '/api/auth/login', 'login')">
        <div class="form-group">
          <label for="login-username">Username</label>
          <input type="text" id="login-username" required>
        </div>
        <div class="form-group">
          <label for="login-password">Password</label>
          <input type="password" id="login-password" required>
        </div>
        <button type="submit">Login</button>
      </form>
    </div>
    <div id="register-form" class="form-container">
      <form onsubmit="submitAuth(event, '/api/auth/createUser', 'register')">
        <div class="form-group">
          <label for="register-username">Username</label>
          <input type="text" id="register-username" required>
        </div>
        <div class="form-group">
          <label for="register-password">Password</label>
          <input type="password" id="register-password" required>
        </div>
        <button type="submit">Create Account</button>
      </form>
    </div>
  </div>
  <script>
    function showForm(type) {
      document.querySelectorAll('.tab').forEach(t => t.classList.remove('active'));
      document.querySelectorAll('.form-container').forEach(f => f.classList.remove('active'));
      if (type === 'login') {
        document.querySelector('.tabs button:first-child').classList.add('active');
        document.getElementById('login-form').classList.add('active');
      } else {
        document.querySelector('.tabs button:last-child').classList.add('active');
        document.getElementById('register-form').classList.add('active');
      }
      document.getElementById('error').style.display = 'none';
      document.getElementById('success').style.display = 'none';
    }
    async function submitAuth(event, url, kind) {
      event.preventDefault();
      const username = document.getElementById(kind + '-username').value;
      const password = document.getElementById(kind + '-password').value;
      try {
        const response = await fetch(url, {
          method: 'POST',
          headers: {'Content-Type': 'application/json'},
          body: JSON.stringify({username, password})
        });
        if (!response.ok) {
          const data = await response.json();
          showMessage('error', data.error || 'Request failed');
          return;
        }
        showMessage('success', 'Success! Redirecting...');
        setTimeout(() => window.location.href = '/', 1000);
      } catch (err) {
        showMessage('error', 'An error occurred. Please try again.');
      }
    }
    function showMessage(kind, message) {
      const el = document.getElementById(kind);
      el.textContent = message;
      el.style.display = 'block';
      document.getElementById(kind === 'error' ? 'success' : 'error').style.display = 'none';
    }
  </script>
</body>
</html>
`
