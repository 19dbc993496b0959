package web

// One panel per widget, filled from the /stream event source.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Tickboard</title>
  <link rel="preconnect" href="https://fonts.googleapis.com">
  <link rel="preconnect" href="https://fonts.gstatic.com" crossorigin>
  <link href="https://fonts.googleapis.com/css2?family=Press+Start+2P&family=Space+Mono:wght@400;700&display=swap" rel="stylesheet">
  <style>
    :root {
      --bg:#ffffff;
      --ink:#111111;
      --ink-mid:#4d4d4d;
      --ink-soft:#9c9c9c;
      --panel:#f6f6f6;
      --up:#1f9d55;
      --down:#cc1f1a;
    }
    * { box-sizing:border-box; }
    body {
      margin:0;
      min-height:100vh;
      padding:2rem;
      background:var(--bg);
      color:var(--ink);
      font-family:'Space Mono','JetBrains Mono',monospace;
    }
    h1 { font-family:'Press Start 2P',monospace; font-size:1rem; letter-spacing:.1em; }
    #app {
      display:grid;
      grid-template-columns:repeat(auto-fill, minmax(420px, 1fr));
      gap:2rem;
    }
    .panel {
      background:var(--panel);
      border:3px solid var(--ink);
      padding:1.25rem;
      box-shadow:8px 8px 0 rgba(0,0,0,.15);
    }
    .panel h2 { font-size:.8rem; text-transform:uppercase; color:var(--ink-mid); margin:0 0 1rem; }
    table { width:100%; border-collapse:collapse; font-size:.85rem; }
    td, th { padding:.25rem .4rem; text-align:right; }
    td:first-child, th:first-child { text-align:left; }
    .spark { letter-spacing:-1px; color:var(--ink-mid); }
    .increased { background:rgba(31,157,85,.18); color:var(--up); transition:background .2s; }
    .decreased { background:rgba(204,31,26,.18); color:var(--down); transition:background .2s; }
    .totals { margin-top:1rem; font-weight:700; display:flex; justify-content:space-between; }
    .clock { font-family:'Press Start 2P',monospace; font-size:1.6rem; }
    .sev-high, .sev-critical { color:var(--down); font-weight:700; }
    .sev-medium { color:#b7791f; }
    .muted { color:var(--ink-soft); font-size:.75rem; }
    ul { list-style:none; padding:0; margin:0; font-size:.8rem; }
    li { padding:.2rem 0; border-bottom:1px dashed var(--ink-soft); }
  </style>
</head>
<body>
  <h1>TICKBOARD</h1>
  <div id="app"></div>
  <script>
    const app = document.getElementById('app');
    const panels = {};

    function panel(widget) {
      if (!panels[widget]) {
        const el = document.createElement('section');
        el.className = 'panel';
        el.innerHTML = '<h2></h2><div class="body"></div>';
        el.querySelector('h2').textContent = widget;
        app.appendChild(el);
        panels[widget] = el.querySelector('.body');
      }
      return panels[widget];
    }

    function esc(s) {
      return String(s ?? '').replace(/[&<>"]/g, c => ({'&':'&amp;','<':'&lt;','>':'&gt;','"':'&quot;'}[c]));
    }

    function renderMarket(msg) {
      const b = msg.data;
      let html = '<table><tr><th>Asset</th><th>Price</th><th>Qty</th><th>Value</th><th>24h</th><th>Trend</th></tr>';
      for (const r of b.rows) {
        html += '<tr><td>' + esc(r.symbol) + ' <span class="muted">' + esc(r.name) + '</span></td>' +
          '<td class="' + r.price_flash + '">' + esc(r.price) + '</td>' +
          '<td>' + esc(r.quantity) + '</td>' +
          '<td class="' + r.value_flash + '">' + esc(r.value) + '</td>' +
          '<td>' + esc(r.day_change_percent) + '</td>' +
          '<td class="spark" title="EMA ' + esc(r.ema) + (r.rsi ? ' RSI ' + esc(r.rsi) : '') + '">' + esc(r.sparkline) + '</td></tr>';
      }
      html += '</table><div class="totals">' +
        '<span class="' + b.totals.value_flash + '">' + esc(b.totals.value) + '</span>' +
        '<span class="' + b.totals.day_change_flash + '">' + esc(b.totals.day_change) + ' (' + esc(b.totals.day_change_percent) + ')</span>' +
        '</div><div class="muted">tick #' + b.seq + '</div>';
      panel(msg.widget).innerHTML = html;
    }

    function renderClock(msg) {
      const c = msg.data;
      panel(msg.widget).innerHTML = '<div class="clock">' + esc(c.time) + '</div><div class="muted">' + esc(c.date) + ' ' + esc(c.zone) + '</div>';
    }

    function renderThreats(msg) {
      let html = '<ul>';
      for (const e of msg.data.events) {
        const at = new Date(e.ts).toLocaleTimeString();
        html += '<li class="sev-' + esc(e.severity) + '">[' + esc(e.severity) + '] ' + esc(e.source) + ': ' + esc(e.message) + ' <span class="muted">' + at + '</span></li>';
      }
      panel(msg.widget).innerHTML = html + '</ul>';
    }

    const source = new EventSource('/stream');
    source.addEventListener('market', e => renderMarket(JSON.parse(e.data)));
    source.addEventListener('clock', e => renderClock(JSON.parse(e.data)));
    source.addEventListener('threatlog', e => renderThreats(JSON.parse(e.data)));
  </script>
</body>
</html>
`
