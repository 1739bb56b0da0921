package handler

import "net/http"

// ---------- GET /health ----------

// Health is a minimal liveness check.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---------- GET / ----------

// Dashboard serves the single-page todo UI.
func (h *Handler) Dashboard(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(dashboardHTML))
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Todo</title>
<style>
  *, *::before, *::after { box-sizing: border-box; }
  :root { --bg: #fafafa; --card: #fff; --text: #494c6b; --muted: #9495a5; --line: #e3e4f1; --accent: #3a7cfd; }
  body.dark { --bg: #171823; --card: #25273d; --text: #c8cbe7; --muted: #5b5e7e; --line: #393a4b; }
  body { margin: 0; font-family: system-ui, -apple-system, sans-serif; background: var(--bg); color: var(--text); }
  .container { max-width: 560px; margin: 0 auto; padding: 3rem 1rem; }
  header { display: flex; justify-content: space-between; align-items: center; }
  h1 { letter-spacing: .4em; font-size: 2rem; margin: 0 0 1.5rem; }
  .card { background: var(--card); border-radius: .4rem; box-shadow: 0 10px 30px rgba(0,0,0,.08); }
  input[type=text] { width: 100%; padding: 1.1rem 1.25rem; border: none; border-radius: .4rem; background: var(--card); color: var(--text); font-size: 1rem; margin-bottom: 1.5rem; }
  input[type=text]:focus { outline: 2px solid var(--accent); }
  ul { list-style: none; margin: 0; padding: 0; }
  li { display: flex; align-items: center; gap: .9rem; padding: 1rem 1.25rem; border-bottom: 1px solid var(--line); }
  li.done span { text-decoration: line-through; color: var(--muted); }
  li span { flex: 1; word-break: break-word; }
  button { background: none; border: none; color: var(--muted); cursor: pointer; font-size: .9rem; }
  button:hover, button.active { color: var(--accent); }
  .footer { display: flex; justify-content: space-between; align-items: center; padding: 1rem 1.25rem; font-size: .85rem; color: var(--muted); }
  .filters { display: flex; gap: .8rem; }
  .empty { padding: 2rem; text-align: center; color: var(--muted); }
  .error { color: #e05555; min-height: 1.2em; font-size: .85rem; margin: -1rem 0 1rem; }
</style>
</head>
<body>
<div class="container">
  <header>
    <h1>TODO</h1>
    <button id="theme" title="Toggle theme">&#9681;</button>
  </header>
  <input type="text" id="text" placeholder="Create a new todo..." autocomplete="off">
  <div class="error" id="error"></div>
  <div class="card">
    <ul id="list"></ul>
    <div class="footer">
      <span id="count">0 items left</span>
      <div class="filters">
        <button data-filter="all" class="active">All</button>
        <button data-filter="active">Active</button>
        <button data-filter="completed">Completed</button>
      </div>
      <button id="clear">Clear Completed</button>
    </div>
  </div>
</div>

<script>
let filter = 'all';
let todos = [];

function showError(msg) {
  const el = document.getElementById('error');
  el.textContent = msg || '';
  if (msg) setTimeout(() => { el.textContent = ''; }, 3000);
}

async function api(method, query, body) {
  const res = await fetch('/api/todos' + (query || ''), {
    method,
    headers: body ? { 'Content-Type': 'application/json' } : {},
    body: body ? JSON.stringify(body) : undefined,
  });
  const data = await res.json();
  if (!res.ok) throw new Error(data.error || ('HTTP ' + res.status));
  return data;
}

function render() {
  const visible = todos.filter(t => filter === 'all' || (filter === 'active' ? !t.completed : t.completed));
  const list = document.getElementById('list');
  list.innerHTML = '';
  if (visible.length === 0) {
    list.innerHTML = '<li class="empty">No todos found</li>';
  }
  for (const t of visible) {
    const li = document.createElement('li');
    if (t.completed) li.className = 'done';
    const box = document.createElement('input');
    box.type = 'checkbox';
    box.checked = t.completed;
    box.onchange = () => toggle(t);
    const span = document.createElement('span');
    span.textContent = t.text;
    const del = document.createElement('button');
    del.innerHTML = '&#10005;';
    del.title = 'Delete';
    del.onclick = () => remove(t.id);
    li.append(box, span, del);
    list.append(li);
  }
  const left = todos.filter(t => !t.completed).length;
  document.getElementById('count').textContent = left + (left === 1 ? ' item left' : ' items left');
}

async function load() {
  try { todos = await api('GET', '?filter=all'); render(); }
  catch (e) { showError(e.message); }
}

async function create(text) {
  try { await api('POST', '', { text }); await load(); }
  catch (e) { showError(e.message); }
}

async function toggle(t) {
  try { await api('PATCH', '', { id: t.id, completed: !t.completed }); await load(); }
  catch (e) { showError(e.message); }
}

async function remove(id) {
  try { await api('DELETE', '?id=' + encodeURIComponent(id)); await load(); }
  catch (e) { showError(e.message); }
}

async function clearCompleted() {
  try { todos = await api('DELETE'); render(); }
  catch (e) { showError(e.message); }
}

function connectLive() {
  const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
  const ws = new WebSocket(proto + location.host + '/api/todos/live');
  ws.onmessage = ev => { todos = JSON.parse(ev.data); render(); };
  ws.onclose = () => setTimeout(connectLive, 2000);
}

document.getElementById('text').addEventListener('keydown', e => {
  if (e.key !== 'Enter') return;
  const text = e.target.value.trim();
  if (!text) return;
  e.target.value = '';
  create(text);
});
document.querySelectorAll('[data-filter]').forEach(b => b.addEventListener('click', () => {
  filter = b.dataset.filter;
  document.querySelectorAll('[data-filter]').forEach(x => x.classList.toggle('active', x === b));
  render();
}));
document.getElementById('clear').addEventListener('click', clearCompleted);
document.getElementById('theme').addEventListener('click', () => {
  document.body.classList.toggle('dark');
  localStorage.setItem('theme', document.body.classList.contains('dark') ? 'dark' : 'light');
});
if (localStorage.getItem('theme') === 'dark') document.body.classList.add('dark');

load();
connectLive();
</script>
</body>
</html>`
