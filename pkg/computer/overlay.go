package computer

// cursorElementID marks the overlay element so each document gets at most one.
const cursorElementID = "__pilot_cursor__"

// cursorOverlayScript draws an arrow that follows mouse events in the top frame.
// Screenshots otherwise do not show where the pointer is.
const cursorOverlayScript = `(() => {
  if (window.self !== window.top) return;

  const mount = () => {
    if (document.getElementById('` + cursorElementID + `')) return;

    const arrow = document.createElement('div');
    arrow.id = '` + cursorElementID + `';
    Object.assign(arrow.style, {
      position: 'fixed',
      left: '0px',
      top: '0px',
      width: '20px',
      height: '20px',
      pointerEvents: 'none',
      zIndex: '2147483647',
      transform: 'translate(-2px, -2px)',
      backgroundSize: 'cover',
      backgroundImage: 'url("data:image/svg+xml;utf8,<svg xmlns=%27http://www.w3.org/2000/svg%27 viewBox=%270 0 24 24%27 fill=%27black%27 stroke=%27white%27 stroke-width=%271%27 stroke-linejoin=%27round%27><polygon points=%272,2 2,22 8,16 14,22 17,19 11,13 20,13%27/></svg>")',
    });
    document.body.appendChild(arrow);

    document.addEventListener('mousemove', (e) => {
      arrow.style.left = e.clientX + 'px';
      arrow.style.top = e.clientY + 'px';
    }, { passive: true });
  };

  const waitForBody = () => {
    if (document.body) {
      mount();
      return;
    }
    requestAnimationFrame(waitForBody);
  };
  waitForBody();
})();`
